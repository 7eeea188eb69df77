// Package signing drives a cooperative threshold-signing session: it
// interleaves relay I/O with an injected MPC library's round-stepping
// function to turn a set of message digests into signatures, one per
// digest, in the order received. The MPC protocol's cryptographic internals
// (DKLS for ECDSA, a FROST-like scheme for EdDSA) are out of scope here —
// this package only drives an MPCSigner interface, never the math itself.
package signing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/vaultmesh/vaultcore/internal/events"
	"github.com/vaultmesh/vaultcore/internal/secretcache"
)

// State is one node of the session lifecycle state machine from
// SPEC_FULL.md §4.7: Idle -> Preparing -> AwaitingPeers -> Running ->
// Finalizing -> {Done, Failed, Cancelled}.
type State string

const (
	StateIdle          State = "idle"
	StatePreparing     State = "preparing"
	StateAwaitingPeers State = "awaiting_peers"
	StateRunning       State = "running"
	StateFinalizing    State = "finalizing"
	StateDone          State = "done"
	StateFailed        State = "failed"
	StateCancelled     State = "cancelled"
)

// Mode selects which of the two cooperative-signing topologies a session
// runs: a two-party fast vault with a remote co-signer, or an n-party
// relay-joined quorum.
type Mode string

const (
	ModeFast  Mode = "fast"
	ModeRelay Mode = "relay"
)

var (
	ErrNoQuorum         = errors.New("signing: quorum not reached before join timeout")
	ErrPeerUnresponsive = errors.New("signing: peer unresponsive")
	ErrRelayUnavailable = errors.New("signing: relay unavailable")
	ErrKeyshareMissing  = errors.New("signing: keyshare missing or locked")
	ErrPasswordRequired = errors.New("signing: keyshare expired from cache, password required to unlock again")
	ErrAbortedByPeer    = errors.New("signing: aborted by a peer")
	ErrCancelled        = errors.New("signing: cancelled by caller")
)

// abortMessage is the reserved relay message body a peer posts to signal
// it is withdrawing from the session instead of continuing the protocol.
// It can never collide with a real MPC protocol message: every signer
// implementation this package drives produces round messages through its
// own wire format, never this exact byte string.
var abortMessage = []byte("\x00vaultcore:signing:abort\x00")

func isAbortMessage(msg RelayMessage) bool {
	return bytes.Equal(msg.Body, abortMessage)
}

// LibraryError is the typed error for a fault inside the injected
// MPCSigner. Sign does not return it: an error from MPCSigner.Step is
// retried and then reported wrapped in ErrPeerUnresponsive, and a panic
// inside Step is not recovered.
type LibraryError struct{ Detail string }

func (e *LibraryError) Error() string { return fmt.Sprintf("signing: library error: %s", e.Detail) }

// Signature is a scheme-agnostic signature: R/S for both families, V set
// only for ECDSA recovery.
type Signature struct {
	R []byte
	S []byte
	V []byte // empty for EdDSA
}

// MPCSigner is the library-level interface this package drives; the actual
// threshold cryptography (DKLS/GG20 for ECDSA, a FROST-like scheme for
// ed25519) lives behind it and is out of scope for this package. Step
// advances one round for one digest: it is handed the round's inbound peer
// messages, tagged by sender, and returns this party's outbound messages
// for the round, or the final signature once the protocol concludes for
// that digest.
type MPCSigner interface {
	Step(ctx context.Context, digestIndex, round int, inbound []RelayMessage) (outbound [][]byte, done bool, sig Signature, err error)
}

// RelayMessage is one opaque MPC message read from the relay, tagged with
// its sender so a session can tell which peer it came from.
type RelayMessage struct {
	From string
	Body []byte
}

// Relay is the transport this session drives rounds over: REST + long-poll,
// per SPEC_FULL.md §6's endpoint list.
type Relay interface {
	Start(ctx context.Context, sessionID, localPartyID string) (joined []string, err error)
	Peers(ctx context.Context, sessionID string) ([]string, error)
	PostMessage(ctx context.Context, sessionID, from, to string, body []byte) error
	ReadMessages(ctx context.Context, sessionID, to string) ([]RelayMessage, error)
	Complete(ctx context.Context, sessionID string) error
}

// Options configures one signing session. Zero-value timeout/retry fields
// are replaced by DefaultOptions' values when Sign is called.
type Options struct {
	Mode            Mode
	Threshold       int
	Signers         []string // party labels including LocalPartyID
	LocalPartyID    string
	JoinTimeout     time.Duration
	RoundTimeout    time.Duration
	SessionTimeout  time.Duration
	MaxRoundRetries int
}

// DefaultOptions returns SPEC_FULL.md §4.7's stated defaults: 60s join,
// 30s/round with up to 2 retries, 5 minutes overall.
func DefaultOptions() Options {
	return Options{
		JoinTimeout:     60 * time.Second,
		RoundTimeout:    30 * time.Second,
		SessionTimeout:  5 * time.Minute,
		MaxRoundRetries: 2,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.JoinTimeout <= 0 {
		o.JoinTimeout = d.JoinTimeout
	}
	if o.RoundTimeout <= 0 {
		o.RoundTimeout = d.RoundTimeout
	}
	if o.SessionTimeout <= 0 {
		o.SessionTimeout = d.SessionTimeout
	}
	if o.MaxRoundRetries <= 0 {
		o.MaxRoundRetries = d.MaxRoundRetries
	}
	return o
}

// Session drives one cooperative signing round set. It takes no lock on the
// vault it signs with: secretcache.Cache.Get holds its mutex only while it
// opens the enclave and gives each caller its own buffer, so two Sign calls
// for the same vault are not serialized against each other.
type Session struct {
	id        string
	relay     Relay
	secrets   *secretcache.Cache
	bus       *events.Bus
	newSigner func(keyshare []byte) MPCSigner

	state State
}

// New creates a session with a fresh random id. newSigner constructs an
// MPCSigner bound to the vault's decrypted keyshare for the session's
// lifetime; it is called once per Sign call, after the keyshare is
// retrieved from secrets.
func New(relay Relay, secrets *secretcache.Cache, bus *events.Bus, newSigner func([]byte) MPCSigner) *Session {
	return &Session{
		id:        uuid.NewString(),
		relay:     relay,
		secrets:   secrets,
		bus:       bus,
		newSigner: newSigner,
		state:     StateIdle,
	}
}

// ID returns this session's identifier, used as the relay session id.
func (s *Session) ID() string { return s.id }

// State returns the session's current lifecycle state.
func (s *Session) State() State { return s.state }

func (s *Session) transition(st State) {
	s.state = st
}

func (s *Session) fail(ctx context.Context, reason error, cause error) ([]Signature, error) {
	s.transition(StateFailed)
	err := fmt.Errorf("%w: %v", reason, cause)
	s.bus.Publish(events.SigningSessionCompleted{SessionID: s.id, Succeeded: false, Err: err.Error()})

	cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.relay.Complete(cleanupCtx, s.id)

	return nil, err
}

// Sign drives a full session: acquire the keyshare, await quorum, run
// round-stepping for every digest in order, and return one signature per
// digest in the same order. ctx governs cancellation; per SPEC_FULL.md
// §4.7 cancellation is honored only at round boundaries, never mid-round.
func (s *Session) Sign(ctx context.Context, vaultID string, digests []string, chain string, opts Options) ([]Signature, error) {
	opts = opts.withDefaults()

	sessionCtx, cancelSession := context.WithTimeout(ctx, opts.SessionTimeout)
	defer cancelSession()

	s.transition(StatePreparing)
	s.bus.Publish(events.SigningSessionStarted{SessionID: s.id, VaultID: vaultID, Chain: chain})

	buf, err := s.secrets.Get(vaultID)
	if err != nil {
		// A secret that was cached and has since expired needs the
		// password re-supplied to unlock it again; a secret that was
		// never cached in the first place is a harder KeyshareMissing
		// the caller can't fix just by re-prompting for a password.
		kind := ErrKeyshareMissing
		if errors.Is(err, secretcache.ErrExpired) {
			kind = ErrPasswordRequired
		}
		s.transition(StateFailed)
		s.bus.Publish(events.SigningSessionCompleted{SessionID: s.id, Succeeded: false, Err: kind.Error()})
		return nil, fmt.Errorf("%w: %v", kind, err)
	}
	defer buf.Destroy()
	signer := s.newSigner(buf.Bytes())

	s.transition(StateAwaitingPeers)
	joined, err := s.awaitQuorum(sessionCtx, opts)
	if err != nil {
		return s.fail(sessionCtx, errorKind(err), err)
	}
	for _, p := range joined {
		s.bus.Publish(events.DeviceJoined{SessionID: s.id, PartyID: p, Joined: len(joined), Required: opts.Threshold})
	}

	s.transition(StateRunning)
	signatures := make([]Signature, len(digests))
	for i, digest := range digests {
		select {
		case <-sessionCtx.Done():
			return s.cancelOrTimeout(sessionCtx)
		default:
		}

		sig, err := s.runDigest(sessionCtx, signer, i, digest, opts)
		if err != nil {
			return s.fail(sessionCtx, errorKind(err), err)
		}
		signatures[i] = sig

		s.bus.Publish(events.SigningProgress{
			SessionID: s.id,
			Step:      fmt.Sprintf("digest %d/%d", i+1, len(digests)),
			Percent:   (i + 1) * 100 / len(digests),
		})
	}

	s.transition(StateFinalizing)
	if err := s.relay.Complete(sessionCtx, s.id); err != nil {
		return s.fail(sessionCtx, ErrRelayUnavailable, err)
	}

	s.transition(StateDone)
	s.bus.Publish(events.SigningSessionCompleted{SessionID: s.id, Succeeded: true})
	return signatures, nil
}

func (s *Session) cancelOrTimeout(ctx context.Context) ([]Signature, error) {
	if errors.Is(ctx.Err(), context.Canceled) {
		s.transition(StateCancelled)
		s.bus.Publish(events.SigningSessionCompleted{SessionID: s.id, Succeeded: false, Err: ErrCancelled.Error()})

		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.relay.Complete(cleanupCtx, s.id)

		return nil, ErrCancelled
	}
	return s.fail(ctx, ErrPeerUnresponsive, ctx.Err())
}

func (s *Session) awaitQuorum(ctx context.Context, opts Options) ([]string, error) {
	joinCtx, cancel := context.WithTimeout(ctx, opts.JoinTimeout)
	defer cancel()

	joined, err := s.relay.Start(joinCtx, s.id, opts.LocalPartyID)
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	for len(joined) < opts.Threshold {
		select {
		case <-joinCtx.Done():
			return nil, fmt.Errorf("%w: %d/%d parties joined", ErrNoQuorum, len(joined), opts.Threshold)
		case <-time.After(200 * time.Millisecond):
		}
		joined, err = s.relay.Peers(joinCtx, s.id)
		if err != nil {
			return nil, fmt.Errorf("polling peers: %w", err)
		}
	}
	return joined, nil
}

// runDigest drives round-stepping for one digest until the signer reports
// done. A round whose signer.Step call fails (including by running past
// opts.RoundTimeout) is retried up to opts.MaxRoundRetries times before
// surfacing PeerUnresponsive; relay post and read failures are not retried
// and surface as ErrRelayUnavailable.
func (s *Session) runDigest(ctx context.Context, signer MPCSigner, digestIndex int, digest string, opts Options) (Signature, error) {
	var inbound []RelayMessage
	for round := 0; ; round++ {
		var roundErr *multierror.Error
		var outbound [][]byte
		var done bool
		var sig Signature
		var stepErr error

		for attempt := 0; attempt <= opts.MaxRoundRetries; attempt++ {
			roundCtx, cancel := context.WithTimeout(ctx, opts.RoundTimeout)
			outbound, done, sig, stepErr = signer.Step(roundCtx, digestIndex, round, inbound)
			cancel()
			if stepErr == nil {
				break
			}
			roundErr = multierror.Append(roundErr, stepErr)
		}
		if stepErr != nil {
			return Signature{}, fmt.Errorf("%w: digest %d round %d: %v", ErrPeerUnresponsive, digestIndex, round, roundErr.ErrorOrNil())
		}

		for _, peer := range opts.Signers {
			if peer == opts.LocalPartyID {
				continue
			}
			for _, msg := range outbound {
				if err := s.relay.PostMessage(ctx, s.id, opts.LocalPartyID, peer, msg); err != nil {
					return Signature{}, fmt.Errorf("%w: posting round %d message to %s: %v", ErrRelayUnavailable, round, peer, err)
				}
			}
		}

		if done {
			return sig, nil
		}

		msgs, err := s.relay.ReadMessages(ctx, s.id, opts.LocalPartyID)
		if err != nil {
			return Signature{}, fmt.Errorf("%w: reading round %d messages: %v", ErrRelayUnavailable, round, err)
		}
		for _, m := range msgs {
			if isAbortMessage(m) {
				return Signature{}, fmt.Errorf("%w: peer %s withdrew from the session", ErrAbortedByPeer, m.From)
			}
		}
		inbound = msgs
	}
}

// Abort withdraws the local party from an in-progress session, posting the
// reserved abort message to every other signer so their runDigest loops
// fail with ErrAbortedByPeer on their next message read instead of
// stalling out a full RoundTimeout waiting on a party that already left.
func (s *Session) Abort(ctx context.Context, opts Options) error {
	for _, peer := range opts.Signers {
		if peer == opts.LocalPartyID {
			continue
		}
		if err := s.relay.PostMessage(ctx, s.id, opts.LocalPartyID, peer, abortMessage); err != nil {
			return fmt.Errorf("%w: notifying %s of abort: %v", ErrRelayUnavailable, peer, err)
		}
	}
	return nil
}

// errorKind maps an internal error to the taxonomy SPEC_FULL.md §4.7
// assigns so fail() reports a stable sentinel regardless of which wrapped
// detail produced it.
func errorKind(err error) error {
	switch {
	case errors.Is(err, ErrNoQuorum):
		return ErrNoQuorum
	case errors.Is(err, ErrRelayUnavailable):
		return ErrRelayUnavailable
	case errors.Is(err, ErrPeerUnresponsive):
		return ErrPeerUnresponsive
	case errors.Is(err, ErrAbortedByPeer):
		return ErrAbortedByPeer
	default:
		return ErrRelayUnavailable
	}
}
