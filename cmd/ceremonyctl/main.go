// Command ceremonyctl drives a local, multi-party simulation of a keygen
// ceremony followed by a threshold signing ceremony, entirely in-process.
// It exists for exercising the engine end to end without a real P2P
// transport or authorising layer (spec.md §2 NEW, "CLI driver").
//
// No ecosystem CLI framework is wired in here: none of this corpus's
// example repositories depend on one (cobra, urfave/cli, kingpin), so
// flag parsing stays on the standard library rather than reaching for a
// library nothing in the corpus ever reached for.
package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/chainflip-io/multisig-ceremony/internal/ceremony"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony/logging"
	"github.com/chainflip-io/multisig-ceremony/pkg/ceremony/metrics"
	pce "github.com/chainflip-io/multisig-ceremony/pkg/ceremony"
	"github.com/chainflip-io/multisig-ceremony/pkg/keystore"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	parties := flag.Int("parties", 3, "number of keygen participants")
	message := flag.String("message", "ceremonyctl demo message", "message to threshold-sign after keygen")
	verbose := flag.Bool("verbose", false, "emit structured logs for blame and ceremony outcomes")
	flag.Parse()

	if *parties < 2 {
		fmt.Fprintln(os.Stderr, "ceremonyctl: -parties must be at least 2")
		os.Exit(1)
	}

	var zapLogger *zap.Logger
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("ceremonyctl: building logger: %v", err)
		}
		zapLogger = l
	} else {
		zapLogger = zap.NewNop()
	}
	lg := logging.New(zapLogger)

	reg := prometheus.NewRegistry()
	met := metrics.New()
	if err := met.Register(reg); err != nil {
		log.Fatalf("ceremonyctl: registering metrics: %v", err)
	}

	ids := make([]pce.AccountID, *parties)
	for i := range ids {
		ids[i] = accountID(byte(i + 1))
	}

	r := newRouter(ids, lg, met)

	threshold := pce.ThresholdFromPartyCount(*parties)
	fmt.Printf("ceremonyctl: running %d-party keygen (threshold t=%d)...\n", *parties, threshold.T)

	keyBytes, err := r.runKeygen(ids, 1)
	if err != nil {
		log.Fatalf("ceremonyctl: keygen failed: %v", err)
	}
	fmt.Printf("ceremonyctl: keygen complete, public key = %x\n", keyBytes)

	signers := ids[:threshold.T+1]
	msgHash := sha256.Sum256([]byte(*message))

	fmt.Printf("ceremonyctl: signing %q with %d signers...\n", *message, len(signers))
	sig, err := r.runSigning(signers, 2, keyBytes, msgHash)
	if err != nil {
		log.Fatalf("ceremonyctl: signing failed: %v", err)
	}
	fmt.Printf("ceremonyctl: signature R=%x S=%x\n", sig.R, sig.S)

	gathered, err := reg.Gather()
	if err != nil {
		log.Fatalf("ceremonyctl: gathering metrics: %v", err)
	}
	fmt.Printf("ceremonyctl: collected %d metric families\n", len(gathered))
}

func accountID(b byte) pce.AccountID {
	var id pce.AccountID
	id[0] = b
	return id
}

type node struct {
	id          pce.AccountID
	mgr         *ceremony.Manager
	keygenDone  *pce.KeygenOutcome
	signingDone *pce.SigningOutcome
}

func (n *node) KeygenDone(o pce.KeygenOutcome)   { n.keygenDone = &o }
func (n *node) SigningDone(o pce.SigningOutcome) { n.signingDone = &o }

var _ ceremony.OutcomeSink = (*node)(nil)

type outboundMessage struct {
	from pce.AccountID
	to   pce.AccountID
	env  ceremony.Envelope
}

type router struct {
	nodes map[pce.AccountID]*node
	queue []outboundMessage
}

func newRouter(ids []pce.AccountID, lg logging.Logger, met *metrics.Metrics) *router {
	r := &router{nodes: make(map[pce.AccountID]*node, len(ids))}
	for _, id := range ids {
		n := &node{id: id}
		n.mgr = ceremony.NewManager(id, keystore.NewMemory(), n, 15*time.Second, lg, met)
		r.nodes[id] = n
	}
	return r
}

func (r *router) enqueue(from pce.AccountID, participants []pce.AccountID, envelopes []ceremony.Envelope) {
	for _, e := range envelopes {
		recipients := e.To
		if recipients == nil {
			recipients = participants
		}
		for _, to := range recipients {
			if to == from {
				continue
			}
			r.queue = append(r.queue, outboundMessage{from: from, to: to, env: e})
		}
	}
}

func (r *router) drain(participants []pce.AccountID) error {
	for len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]

		wireEnv, err := ceremony.EncodeOutbound(msg.env)
		if err != nil {
			return err
		}
		out, err := r.nodes[msg.to].mgr.DispatchInbound(msg.from, wireEnv)
		if err != nil {
			return err
		}
		r.enqueue(msg.to, participants, out)
	}
	return nil
}

func (r *router) runKeygen(ids []pce.AccountID, id pce.CeremonyID) ([33]byte, error) {
	req := pce.KeygenRequest{CeremonyID: id, Participants: ids}

	for _, accID := range ids {
		out, err := r.nodes[accID].mgr.OnKeygenRequest(req)
		if err != nil {
			return [33]byte{}, err
		}
		r.enqueue(accID, ids, out)
	}
	if err := r.drain(ids); err != nil {
		return [33]byte{}, err
	}

	for _, accID := range ids {
		n := r.nodes[accID]
		if n.keygenDone == nil {
			return [33]byte{}, fmt.Errorf("node %s never reached a keygen outcome", accID)
		}
		if !n.keygenDone.Ok() {
			return [33]byte{}, fmt.Errorf("keygen aborted: %s (blamed %v)", n.keygenDone.Err, n.keygenDone.Blamed)
		}
	}
	return r.nodes[ids[0]].keygenDone.Value, nil
}

func (r *router) runSigning(signers []pce.AccountID, id pce.CeremonyID, keyID [33]byte, msgHash [32]byte) (pce.Signature, error) {
	req := pce.SigningRequest{CeremonyID: id, Signers: signers, KeyID: keyID, MessageHash: msgHash}

	for _, accID := range signers {
		out, err := r.nodes[accID].mgr.OnSigningRequest(req)
		if err != nil {
			return pce.Signature{}, err
		}
		r.enqueue(accID, signers, out)
	}
	if err := r.drain(signers); err != nil {
		return pce.Signature{}, err
	}

	for _, accID := range signers {
		n := r.nodes[accID]
		if n.signingDone == nil {
			return pce.Signature{}, fmt.Errorf("node %s never reached a signing outcome", accID)
		}
		if !n.signingDone.Ok() {
			return pce.Signature{}, fmt.Errorf("signing aborted: %s (blamed %v)", n.signingDone.Err, n.signingDone.Blamed)
		}
	}
	return r.nodes[signers[0]].signingDone.Value, nil
}
