package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
)

// ICEServers builds the STUN/TURN list advertised to peers. TURN URLs
// require both a username and a credential.
func ICEServers(cfg Config) ([]webrtc.ICEServer, error) {
	var servers []webrtc.ICEServer

	if len(cfg.STUNURLs) > 0 {
		server := webrtc.ICEServer{URLs: trimAll(cfg.STUNURLs)}
		if err := validateICEServer(server); err != nil {
			return nil, fmt.Errorf("stun_urls: %w", err)
		}
		servers = append(servers, server)
	}

	if len(cfg.TURNURLs) > 0 {
		username := strings.TrimSpace(cfg.TURNUsername)
		credential := strings.TrimSpace(cfg.TURNCredential)
		if username == "" || credential == "" {
			return nil, errors.New("turn_username/turn_credential: both must be set when turn_urls is set")
		}

		server := webrtc.ICEServer{
			URLs:           trimAll(cfg.TURNURLs),
			Username:       username,
			Credential:     credential,
			CredentialType: webrtc.ICECredentialTypePassword,
		}
		if err := validateICEServer(server); err != nil {
			return nil, fmt.Errorf("turn_urls: %w", err)
		}
		servers = append(servers, server)
	}

	return servers, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func validateICEServer(server webrtc.ICEServer) error {
	if len(server.URLs) == 0 {
		return errors.New("missing urls")
	}

	requiresTurnCreds := false
	for _, url := range server.URLs {
		switch {
		case strings.HasPrefix(url, "stun:"), strings.HasPrefix(url, "stuns:"):
		case strings.HasPrefix(url, "turn:"), strings.HasPrefix(url, "turns:"):
			requiresTurnCreds = true
		default:
			return fmt.Errorf("unsupported url scheme: %q", url)
		}
	}

	if requiresTurnCreds {
		if strings.TrimSpace(server.Username) == "" {
			return errors.New("turn urls require username")
		}
		cred, ok := server.Credential.(string)
		if !ok || strings.TrimSpace(cred) == "" {
			return errors.New("turn urls require credential")
		}
	}
	return nil
}
