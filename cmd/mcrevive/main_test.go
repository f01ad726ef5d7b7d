package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigFlag(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"serve"}, ""},
		{[]string{"--config", "a.yaml", "serve"}, "a.yaml"},
		{[]string{"serve", "-c", "b.yaml"}, "b.yaml"},
		{[]string{"--config=c.yaml", "supervise"}, "c.yaml"},
		{[]string{"-cd.yaml", "supervise"}, "d.yaml"},
		{[]string{"send", "--", "--config", "x"}, ""},
		{[]string{"serve", "--config"}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, configFlag(tt.args), "args %v", tt.args)
	}
}
