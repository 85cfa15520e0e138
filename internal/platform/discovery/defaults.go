// Package discovery centralizes the local development conventions of the
// repository stack: which ports the services publish and how to reach them
// from the operator's machine.
package discovery

import (
	"strconv"
	"strings"
)

const (
	// ServiceRepository is the document and schema repository.
	ServiceRepository = "elephant-repository"
	// ServiceIdentity is the OpenID Connect identity provider.
	ServiceIdentity = "keycloak"
	// ServiceIndex is the search indexer fed by the repository event log.
	ServiceIndex = "elephant-index"
)

// DefaultRealm is the identity realm used by the local stack.
const DefaultRealm = "elephant"

// DefaultTwirpService is the protobuf package prefix of the repository API.
const DefaultTwirpService = "elephant.repository"

var hostPorts = map[string]int{
	ServiceRepository: 1080,
	ServiceIdentity:   8180,
	ServiceIndex:      1082,
}

// DefaultHostAddr returns the host-published address for a service.
func DefaultHostAddr(service string) string {
	port, ok := hostPorts[strings.TrimSpace(service)]
	if !ok || port <= 0 {
		return ""
	}
	return "localhost:" + strconv.Itoa(port)
}

// DefaultBaseURL returns http://<host-published address> for a service.
func DefaultBaseURL(service string) string {
	addr := DefaultHostAddr(service)
	if addr == "" {
		return ""
	}
	return "http://" + addr
}

// OrDefaultBaseURL returns value when set, otherwise the service convention.
func OrDefaultBaseURL(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return strings.TrimRight(value, "/")
	}
	return DefaultBaseURL(service)
}

// TokenURL returns the OpenID Connect token endpoint of realm on the
// identity provider at baseURL.
func TokenURL(baseURL, realm string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	realm = strings.TrimSpace(realm)
	if baseURL == "" {
		return ""
	}
	if realm == "" {
		realm = DefaultRealm
	}
	return baseURL + "/realms/" + realm + "/protocol/openid-connect/token"
}

// DefaultTokenURL returns the token endpoint of the default realm on the
// host-published identity provider.
func DefaultTokenURL() string {
	return TokenURL(DefaultBaseURL(ServiceIdentity), DefaultRealm)
}
