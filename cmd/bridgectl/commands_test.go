package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"init", "show", "request", "burn", "nft", "balance", "fund"} {
		assert.True(t, names[want], want)
	}
}

func TestRootCmd_RequiresAuthority(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"show", "--rpc", "http://127.0.0.1:1"})
	root.SetOut(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, errNoAuthority)
}

func TestRootCmd_RequiredFlags(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"request", "--mint", "x"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user-holding")
}

func TestRootCmd_BadProgramID(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"show", "--program", "0OIl"})
	root.SetOut(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--program")
}
