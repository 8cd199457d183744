package raw

import (
	"testing"
)

func TestConfGet(t *testing.T) {
	t.Setenv("LOG_SERVICE", " dfsclient ")
	t.Setenv("LOG_LEVEL", " info ")

	root := New()
	log := root.Prefix("LOG_")

	tests := []struct {
		name string
		conf Conf
		key  string
		def  string
		want string
	}{
		{name: "root full key", conf: root, key: "LOG_SERVICE", def: "x", want: "dfsclient"},
		{name: "prefixed hit", conf: log, key: "LEVEL", def: "x", want: "info"},
		{name: "missing returns default", conf: log, key: "MISSING", def: "defv", want: "defv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conf.Get(tt.key, tt.def); got != tt.want {
				t.Fatalf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestConfGetBool(t *testing.T) {
	c := New().Prefix("LOG_")

	t.Setenv("LOG_T1", "true")
	t.Setenv("LOG_T2", "1")
	t.Setenv("LOG_T3", "YES")
	t.Setenv("LOG_T4", "on")
	t.Setenv("LOG_F1", "false")
	t.Setenv("LOG_F2", "0")
	t.Setenv("LOG_WS", "   true   ")

	tests := []struct {
		key  string
		def  bool
		want bool
	}{
		{key: "T1", def: false, want: true},
		{key: "T2", def: false, want: true},
		{key: "T3", def: false, want: true},
		{key: "T4", def: false, want: true},
		{key: "F1", def: true, want: false},
		{key: "F2", def: true, want: false},
		{key: "WS", def: false, want: true},
		{key: "MISSING", def: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := c.GetBool(tt.key, tt.def); got != tt.want {
				t.Fatalf("GetBool(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestConfGetInt(t *testing.T) {
	c := New().Prefix("SYS_")

	t.Setenv("SYS_OK", "42")
	t.Setenv("SYS_WS", "  7  ")
	t.Setenv("SYS_NONNUM", "12x")
	t.Setenv("SYS_NEG", "-5")

	tests := []struct {
		key  string
		def  int
		want int
	}{
		{key: "OK", def: 0, want: 42},
		{key: "WS", def: 1, want: 7},
		{key: "NONNUM", def: 9, want: 9},
		{key: "NEG", def: 3, want: 3},
		{key: "MISSING", def: 11, want: 11},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := c.GetInt(tt.key, tt.def); got != tt.want {
				t.Fatalf("GetInt(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}
