// Package netprobe provides optional server-side client-IP reputation for
// deployments that relay telemetry through a backend.
//
// It answers one question the behavioral channels cannot: is the client
// connecting from datacenter infrastructure rather than a residential
// network? A hit is a risk signal, not proof — some legitimate users sit
// behind cloud-hosted browsers or VDI.
package netprobe

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Reputation is the result of an IP lookup.
type Reputation struct {
	ASN        uint
	OrgName    string
	Datacenter bool
}

// Service performs ASN lookups against a MaxMind GeoLite2-ASN database.
type Service struct {
	asnReader   *geoip2.Reader
	blacklisted map[uint]string
}

// NewService opens the ASN database at the given path and uses the default
// datacenter ASN blacklist.
func NewService(asnDBPath string) (*Service, error) {
	return NewServiceWithBlacklist(asnDBPath, DefaultDatacenterASNs())
}

// NewServiceWithBlacklist opens the ASN database with a custom blacklist.
func NewServiceWithBlacklist(asnDBPath string, blacklist map[uint]string) (*Service, error) {
	reader, err := geoip2.Open(asnDBPath)
	if err != nil {
		return nil, fmt.Errorf("open asn database: %w", err)
	}
	return &Service{asnReader: reader, blacklisted: blacklist}, nil
}

// Close releases the database handle.
func (s *Service) Close() {
	if s.asnReader != nil {
		s.asnReader.Close()
	}
}

// Lookup resolves the ASN of an IP and checks it against the datacenter
// blacklist.
func (s *Service) Lookup(ipAddress string) (Reputation, error) {
	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return Reputation{}, fmt.Errorf("invalid ip address: %s", ipAddress)
	}

	record, err := s.asnReader.ASN(ip)
	if err != nil {
		return Reputation{}, err
	}

	rep := Reputation{
		ASN:     uint(record.AutonomousSystemNumber),
		OrgName: record.AutonomousSystemOrganization,
	}
	if name, hit := s.blacklisted[rep.ASN]; hit {
		rep.Datacenter = true
		if rep.OrgName == "" {
			rep.OrgName = name
		}
	}
	return rep, nil
}

// DefaultDatacenterASNs lists common cloud/hosting providers. Real
// deployments should extend this considerably.
func DefaultDatacenterASNs() map[uint]string {
	return map[uint]string{
		// Major cloud providers
		16509:  "Amazon.com (AWS)",
		14618:  "Amazon.com (AWS)",
		15169:  "Google Cloud",
		396982: "Google Cloud",
		8075:   "Microsoft Azure",
		14061:  "DigitalOcean",

		// European hosting providers
		24940: "Hetzner Online GmbH",
		16276: "OVH SAS",
		12876: "Online S.A.S. (Scaleway)",
		49981: "WorldStream",

		// VPN/proxy infrastructure
		20473: "Choopa, LLC (Vultr)",
		60068: "Datacamp Limited (CDN77)",
		9009:  "M247 Europe",
		13335: "Cloudflare",

		// Other hosting providers
		63949: "Linode",
		46606: "Unified Layer",
		36352: "ColoCrossing",
	}
}
