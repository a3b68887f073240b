package fabric

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is the subset of a fabric connection profile the gateway reads.
// JSON profiles parse as YAML, so both formats load through the same decoder.
type Profile struct {
	Name          string                  `yaml:"name"`
	Client        profileClient           `yaml:"client"`
	Organizations map[string]organization `yaml:"organizations"`
	Peers         map[string]peer         `yaml:"peers"`

	dir string
}

type profileClient struct {
	Organization string `yaml:"organization"`
}

type organization struct {
	MSPID string   `yaml:"mspid"`
	Peers []string `yaml:"peers"`
}

type peer struct {
	URL         string            `yaml:"url"`
	TLSCACerts  tlsCerts          `yaml:"tlsCACerts"`
	GRPCOptions map[string]string `yaml:"grpcOptions"`
}

type tlsCerts struct {
	PEM  string `yaml:"pem"`
	Path string `yaml:"path"`
}

// PeerEndpoint is everything needed to dial one gateway peer.
type PeerEndpoint struct {
	Name         string
	Endpoint     string // host:port
	HostOverride string
	TLSCertPEM   []byte
	MSPID        string
}

// LoadProfile reads a connection profile from path.
func LoadProfile(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read connection profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse connection profile %s: %w", path, err)
	}
	p.dir = filepath.Dir(path)
	return &p, nil
}

// GatewayPeer picks the first peer of the client organization, or of the first
// organization when the profile names none.
func (p *Profile) GatewayPeer() (PeerEndpoint, error) {
	orgName := p.Client.Organization
	if orgName == "" {
		names := make([]string, 0, len(p.Organizations))
		for n := range p.Organizations {
			names = append(names, n)
		}
		sort.Strings(names)
		if len(names) > 0 {
			orgName = names[0]
		}
	}
	org, ok := p.Organizations[orgName]
	if !ok || len(org.Peers) == 0 {
		return PeerEndpoint{}, fmt.Errorf("connection profile %q: organization %q has no peers", p.Name, orgName)
	}
	name := org.Peers[0]
	pr, ok := p.Peers[name]
	if !ok {
		return PeerEndpoint{}, fmt.Errorf("connection profile %q: peer %q not defined", p.Name, name)
	}
	ep := PeerEndpoint{
		Name:         name,
		Endpoint:     stripScheme(pr.URL),
		HostOverride: pr.GRPCOptions["ssl-target-name-override"],
		MSPID:        org.MSPID,
	}
	if ep.HostOverride == "" {
		ep.HostOverride = pr.GRPCOptions["hostnameOverride"]
	}
	switch {
	case pr.TLSCACerts.PEM != "":
		ep.TLSCertPEM = []byte(pr.TLSCACerts.PEM)
	case pr.TLSCACerts.Path != "":
		certPath := pr.TLSCACerts.Path
		if !filepath.IsAbs(certPath) {
			certPath = filepath.Join(p.dir, certPath)
		}
		b, err := os.ReadFile(certPath)
		if err != nil {
			return PeerEndpoint{}, fmt.Errorf("read tls ca cert for %s: %w", name, err)
		}
		ep.TLSCertPEM = b
	}
	return ep, nil
}

func stripScheme(url string) string {
	for _, scheme := range []string{"grpcs://", "grpc://"} {
		url = strings.TrimPrefix(url, scheme)
	}
	return url
}
