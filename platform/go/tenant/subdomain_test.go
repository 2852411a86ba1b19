package tenant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubdomainFromHost(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		host string
		root string
		want string
		ok   bool
	}{
		{name: "plain subdomain", host: "acme.support.test", root: "support.test", want: "acme", ok: true},
		{name: "with port", host: "acme.support.test:8080", root: "support.test", want: "acme", ok: true},
		{name: "uppercase host", host: "ACME.Support.Test", root: "support.test", want: "acme", ok: true},
		{name: "trailing dot", host: "acme.support.test.", root: "support.test", want: "acme", ok: true},
		{name: "bare root domain", host: "support.test", root: "support.test", ok: false},
		{name: "nested labels", host: "a.b.support.test", root: "support.test", ok: false},
		{name: "unrelated host", host: "acme.elsewhere.test", root: "support.test", ok: false},
		{name: "suffix but not label", host: "acmesupport.test", root: "support.test", ok: false},
		{name: "empty host", host: "", root: "support.test", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := SubdomainFromHost(tc.host, tc.root)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	require.Equal(t, "acme", Normalize("  Acme "))
}
