package engine

import (
	"errors"
	"testing"

	"github.com/ChizhovVadim/takmatch/pkg/tei"
)

func TestFaultError(t *testing.T) {
	var _, parseErr = tei.ParseEngineLine("bestmove z9?")
	var tests = []struct {
		fault *Fault
		want  string
	}{
		{&Fault{Kind: Timeout, Engine: "a"}, "engine a: timeout"},
		{&Fault{Kind: Timeout, Engine: "a", Err: errors.New("no move within 1s")}, "engine a: timeout: no move within 1s"},
		{&Fault{Kind: Protocol, Engine: "b", Err: parseErr}, "engine b: " + parseErr.Error()},
	}
	for i, test := range tests {
		if got := test.fault.Error(); got != test.want {
			t.Error(i, got)
		}
	}
}
