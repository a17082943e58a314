package main

import (
	"fmt"

	"github.com/mommyshops/irae/internal/config"
	"github.com/mommyshops/irae/internal/providers"
	"github.com/mommyshops/irae/internal/providers/cir"
	"github.com/mommyshops/irae/internal/providers/cosing"
	"github.com/mommyshops/irae/internal/providers/ewg"
	"github.com/mommyshops/irae/internal/providers/fdafaers"
	"github.com/mommyshops/irae/internal/providers/iarc"
	"github.com/mommyshops/irae/internal/providers/iccr"
	"github.com/mommyshops/irae/internal/providers/incibeauty"
	"github.com/mommyshops/irae/internal/providers/invima"
	"github.com/mommyshops/irae/internal/providers/pubchem"
	"github.com/mommyshops/irae/internal/providers/sccs"
)

// newAdapter constructs the concrete Adapter registered under id. This is
// the one place in the module allowed to know about every provider
// package, per providers.Registration's doc comment.
func newAdapter(id string, httpCfg providers.HTTPConfig) (providers.Adapter, error) {
	switch id {
	case "fda_faers":
		return fdafaers.New(httpCfg), nil
	case "pubchem":
		return pubchem.New(httpCfg), nil
	case "ewg":
		return ewg.New(httpCfg), nil
	case "cir":
		return cir.New(httpCfg), nil
	case "sccs":
		return sccs.New(httpCfg), nil
	case "iccr":
		return iccr.New(httpCfg), nil
	case "invima":
		return invima.New(httpCfg), nil
	case "iarc":
		return iarc.New(httpCfg), nil
	case "inci_beauty":
		return incibeauty.New(httpCfg), nil
	case "cosing":
		return cosing.New(httpCfg), nil
	default:
		return nil, fmt.Errorf("no adapter registered for provider id %q", id)
	}
}

// httpConfigFor translates one config.ProviderConfig into the
// providers.HTTPConfig its adapter expects.
func httpConfigFor(p config.ProviderConfig) providers.HTTPConfig {
	return providers.HTTPConfig{
		BaseURL:      p.BaseURL,
		PathTemplate: p.PathTemplate,
		AuthEnvVar:   p.AuthEnvVar,
		AuthHeader:   p.AuthHeader,
	}
}
