package server

import (
	"testing"

	"github.com/pion/webrtc/v4"
)

func TestICEServers(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    int
		wantErr bool
	}{
		{name: "none configured", cfg: Config{}, want: 0},
		{
			name: "stun only",
			cfg:  Config{STUNURLs: []string{" stun:stun.example.com:3478 "}},
			want: 1,
		},
		{
			name: "stun and turn",
			cfg: Config{
				STUNURLs:       []string{"stun:stun.example.com:3478"},
				TURNURLs:       []string{"turn:turn.example.com:3478", "turns:turn.example.com:5349"},
				TURNUsername:   "user",
				TURNCredential: "secret",
			},
			want: 2,
		},
		{
			name:    "turn without credential",
			cfg:     Config{TURNURLs: []string{"turn:turn.example.com:3478"}, TURNUsername: "user"},
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			cfg:     Config{STUNURLs: []string{"http://stun.example.com"}},
			wantErr: true,
		},
		{
			name:    "turn url in stun list",
			cfg:     Config{STUNURLs: []string{"turn:turn.example.com:3478"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			servers, err := ICEServers(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ICEServers() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(servers) != tt.want {
				t.Errorf("ICEServers() returned %d servers, want %d", len(servers), tt.want)
			}
		})
	}
}

func TestICEServersTURNCredentials(t *testing.T) {
	servers, err := ICEServers(Config{
		TURNURLs:       []string{"turn:turn.example.com:3478"},
		TURNUsername:   " user ",
		TURNCredential: "secret",
	})
	if err != nil {
		t.Fatalf("ICEServers() failed: %v", err)
	}

	turn := servers[0]
	if turn.Username != "user" {
		t.Errorf("Username = %q, want user", turn.Username)
	}
	if turn.Credential != "secret" {
		t.Errorf("Credential = %v, want secret", turn.Credential)
	}
	if turn.CredentialType != webrtc.ICECredentialTypePassword {
		t.Errorf("CredentialType = %v, want password", turn.CredentialType)
	}
}
