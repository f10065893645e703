package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("SUNWISE_DATA", "/srv/sunwise")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "tilde only", in: "~", want: "/home/tester"},
		{name: "tilde prefix", in: "~/tables.yaml", want: "/home/tester/tables.yaml"},
		{name: "env var", in: "$SUNWISE_DATA/sunwise.db", want: "/srv/sunwise/sunwise.db"},
		{name: "absolute untouched", in: "/tmp/x.db", want: "/tmp/x.db"},
		{name: "tilde in middle untouched", in: "/tmp/~x", want: "/tmp/~x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
