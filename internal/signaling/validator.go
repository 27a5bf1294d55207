package signaling

import (
	"fmt"
	"strings"
)

// ValidationResult lists the structural problems found in an inbound message.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Error joins the collected problems into a single client-facing message.
func (r ValidationResult) Error() string {
	return strings.Join(r.Errors, "; ")
}

// Validate checks an inbound message decoded from JSON. senderID is the peer
// the message's connection is registered as, or "" when it is unregistered.
//
// A message that is not an object with a non-empty string type yields a
// single error and nothing else is checked. Types without rules here, ping
// and unknown types included, are accepted and left to the dispatcher.
func Validate(msg any, senderID string) ValidationResult {
	fields, ok := msg.(map[string]any)
	if !ok {
		return invalid("Message must be a JSON object")
	}
	typ, ok := stringField(fields, "type")
	if !ok || typ == "" {
		return invalid("Message must have a non-empty string 'type' field")
	}

	var errs []string
	switch typ {
	case TypeRegister:
		id, ok := stringField(fields, "peerId")
		if !ok || strings.TrimSpace(id) == "" {
			errs = append(errs, "register requires a non-empty 'peerId' string")
		}
	case TypeOffer, TypeAnswer:
		if senderID == "" {
			return invalid("Must register before sending signaling messages")
		}
		errs = checkRouting(fields, senderID, errs)
		if sdp, ok := stringField(fields, "sdp"); !ok || sdp == "" {
			errs = append(errs, "'sdp' must be a non-empty string")
		}
	case TypeICECandidate:
		if senderID == "" {
			return invalid("Must register before sending signaling messages")
		}
		errs = checkRouting(fields, senderID, errs)
		if _, ok := fields["candidate"].(map[string]any); !ok {
			errs = append(errs, "'candidate' must be an object")
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func checkRouting(fields map[string]any, senderID string, errs []string) []string {
	from, ok := stringField(fields, "from")
	switch {
	case !ok:
		errs = append(errs, "'from' must be a string")
	case from != senderID:
		errs = append(errs, fmt.Sprintf("'from' field mismatch: expected %q, got %q", senderID, from))
	}
	if _, ok := stringField(fields, "to"); !ok {
		errs = append(errs, "'to' must be a string")
	}
	return errs
}

func invalid(reason string) ValidationResult {
	return ValidationResult{Valid: false, Errors: []string{reason}}
}
