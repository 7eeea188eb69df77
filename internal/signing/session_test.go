package signing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vaultmesh/vaultcore/internal/events"
	"github.com/vaultmesh/vaultcore/internal/secretcache"
)

// fakeRelay is an in-memory Relay that completes Start immediately with a
// fixed peer set and never blocks ReadMessages (empty inbound is enough for
// fakeSigner, which needs only one round per digest).
type fakeRelay struct {
	mu        sync.Mutex
	peers     []string
	posted    int
	completed bool
}

func (r *fakeRelay) Start(ctx context.Context, sessionID, localPartyID string) ([]string, error) {
	return r.peers, nil
}

func (r *fakeRelay) Peers(ctx context.Context, sessionID string) ([]string, error) {
	return r.peers, nil
}

func (r *fakeRelay) PostMessage(ctx context.Context, sessionID, from, to string, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posted++
	return nil
}

func (r *fakeRelay) ReadMessages(ctx context.Context, sessionID, to string) ([]RelayMessage, error) {
	return nil, nil
}

func (r *fakeRelay) Complete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = true
	return nil
}

// fakeSigner finishes every digest in a single round with a deterministic
// fake signature derived from the digest index.
type fakeSigner struct{}

func (fakeSigner) Step(ctx context.Context, digestIndex, round int, inbound []RelayMessage) ([][]byte, bool, Signature, error) {
	return nil, true, Signature{R: []byte{byte(digestIndex)}, S: []byte{0x01}, V: []byte{0x00}}, nil
}

func newTestSession(t *testing.T, relay *fakeRelay) (*Session, *secretcache.Cache, *events.Bus) {
	t.Helper()
	cache := secretcache.New(0)
	cache.Put("vault-1", []byte("fake-keyshare"))
	bus := events.New()
	sess := New(relay, cache, bus, func(keyshare []byte) MPCSigner { return fakeSigner{} })
	return sess, cache, bus
}

func TestSign_HappyPath_ReturnsOneSignaturePerDigest(t *testing.T) {
	relay := &fakeRelay{peers: []string{"party-1", "party-2"}}
	sess, _, bus := newTestSession(t, relay)

	var completed []events.Event
	bus.Subscribe(func(e events.Event) { completed = append(completed, e) })

	opts := Options{Threshold: 2, Signers: []string{"party-1", "party-2"}, LocalPartyID: "party-1"}
	sigs, err := sess.Sign(context.Background(), "vault-1", []string{"digest-a", "digest-b"}, "bitcoin", opts)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(sigs))
	}
	if sigs[0].R[0] != 0 || sigs[1].R[0] != 1 {
		t.Error("expected signatures in input-digest order")
	}
	if sess.State() != StateDone {
		t.Errorf("expected StateDone, got %s", sess.State())
	}
	if !relay.completed {
		t.Error("expected relay.Complete to have been called")
	}

	var sawStarted, sawCompleted bool
	for _, e := range completed {
		switch e.(type) {
		case events.SigningSessionStarted:
			sawStarted = true
		case events.SigningSessionCompleted:
			sawCompleted = true
		}
	}
	if !sawStarted || !sawCompleted {
		t.Error("expected SigningSessionStarted and SigningSessionCompleted events")
	}
}

func TestSign_MissingKeyshare_ReturnsErrKeyshareMissing(t *testing.T) {
	relay := &fakeRelay{peers: []string{"party-1", "party-2"}}
	cache := secretcache.New(0)
	bus := events.New()
	sess := New(relay, cache, bus, func(keyshare []byte) MPCSigner { return fakeSigner{} })

	opts := Options{Threshold: 2, Signers: []string{"party-1", "party-2"}, LocalPartyID: "party-1"}
	_, err := sess.Sign(context.Background(), "no-such-vault", []string{"digest-a"}, "bitcoin", opts)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrKeyshareMissing) {
		t.Errorf("expected ErrKeyshareMissing, got %v", err)
	}
	if sess.State() != StateFailed {
		t.Errorf("expected StateFailed, got %s", sess.State())
	}
}

func TestSign_QuorumNeverReached_ReturnsErrNoQuorum(t *testing.T) {
	relay := &fakeRelay{peers: []string{"party-1"}} // never reaches threshold
	sess, _, _ := newTestSession(t, relay)

	opts := Options{
		Threshold:    2,
		Signers:      []string{"party-1", "party-2"},
		LocalPartyID: "party-1",
		JoinTimeout:  300 * time.Millisecond,
	}
	_, err := sess.Sign(context.Background(), "vault-1", []string{"digest-a"}, "bitcoin", opts)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrNoQuorum) {
		t.Errorf("expected ErrNoQuorum, got %v", err)
	}
	if sess.State() != StateFailed {
		t.Errorf("expected StateFailed, got %s", sess.State())
	}
}

// abortingRelay behaves like fakeRelay but hands back an abort message on
// its first ReadMessages call, simulating a peer that withdrew instead of
// posting a round message.
type abortingRelay struct {
	fakeRelay
	from string
}

func (r *abortingRelay) ReadMessages(ctx context.Context, sessionID, to string) ([]RelayMessage, error) {
	return []RelayMessage{{From: r.from, Body: abortMessage}}, nil
}

// twoRoundSigner never finishes on round 0, so runDigest reads inbound
// messages before stepping again — the point at which an abort should be
// noticed.
type twoRoundSigner struct{}

func (twoRoundSigner) Step(ctx context.Context, digestIndex, round int, inbound []RelayMessage) ([][]byte, bool, Signature, error) {
	if round == 0 {
		return [][]byte{{0x01}}, false, Signature{}, nil
	}
	return nil, true, Signature{R: []byte{0x00}, S: []byte{0x01}, V: []byte{0x00}}, nil
}

func TestSign_PeerAborts_ReturnsErrAbortedByPeer(t *testing.T) {
	relay := &abortingRelay{fakeRelay: fakeRelay{peers: []string{"party-1", "party-2"}}, from: "party-2"}
	cache := secretcache.New(0)
	cache.Put("vault-1", []byte("fake-keyshare"))
	bus := events.New()
	sess := New(relay, cache, bus, func(keyshare []byte) MPCSigner { return twoRoundSigner{} })

	opts := Options{Threshold: 2, Signers: []string{"party-1", "party-2"}, LocalPartyID: "party-1"}
	_, err := sess.Sign(context.Background(), "vault-1", []string{"digest-a"}, "bitcoin", opts)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrAbortedByPeer) {
		t.Errorf("expected ErrAbortedByPeer, got %v", err)
	}
	if sess.State() != StateFailed {
		t.Errorf("expected StateFailed, got %s", sess.State())
	}
}

func TestSign_ExpiredKeyshare_ReturnsErrPasswordRequired(t *testing.T) {
	relay := &fakeRelay{peers: []string{"party-1", "party-2"}}
	cache := secretcache.New(time.Millisecond)
	cache.Put("vault-1", []byte("fake-keyshare"))
	time.Sleep(5 * time.Millisecond)
	bus := events.New()
	sess := New(relay, cache, bus, func(keyshare []byte) MPCSigner { return fakeSigner{} })

	opts := Options{Threshold: 2, Signers: []string{"party-1", "party-2"}, LocalPartyID: "party-1"}
	_, err := sess.Sign(context.Background(), "vault-1", []string{"digest-a"}, "bitcoin", opts)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("expected ErrPasswordRequired, got %v", err)
	}
	if sess.State() != StateFailed {
		t.Errorf("expected StateFailed, got %s", sess.State())
	}
}

func TestSign_CancelledContext_ReturnsErrCancelled(t *testing.T) {
	relay := &fakeRelay{peers: []string{"party-1", "party-2"}}
	sess, _, _ := newTestSession(t, relay)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := Options{Threshold: 2, Signers: []string{"party-1", "party-2"}, LocalPartyID: "party-1"}
	_, err := sess.Sign(ctx, "vault-1", []string{"digest-a", "digest-b", "digest-c"}, "bitcoin", opts)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}
