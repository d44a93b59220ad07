/*
Package korra is an agent execution and attestation engine. Agents turn input
bytes into output bytes inside a sandbox collaborator, attach a tamper-evident
execution proof to each result, and a roster of weighted validator nodes
reaches agreement on which proof is authoritative.

The core is three pieces with real invariants: a versioned key-value state
store with snapshot/rollback (pkg/state), a deterministic proof
generator/verifier (pkg/proof), and a weighted consensus validator
(pkg/consensus). Agent orchestration (pkg/agent) ties the first two to a
sandbox; everything else is adapters.

# Usage

Run one agent execution and check the proof:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/korralabs/korra"
	)

	func main() {
		ag, err := korra.NewAgent("transformer", map[string]string{
			"id":          "transformer-1",
			"module_path": "./modules/reverse.sh",
		})
		if err != nil {
			log.Fatal(err)
		}

		out, err := ag.Execute(context.Background(), []byte("payload"))
		if err != nil {
			log.Fatal(err)
		}

		p := ag.LastProof()
		fmt.Println(string(out), p.ProofHash)
	}

Aggregate proofs from several nodes into a verdict:

	v := korra.NewValidator(0.66)
	v.AddNode("alpha", 1)
	v.AddNode("beta", 1)
	v.AddNode("gamma", 1)

	v.AddProof("alpha", p)
	v.AddProof("beta", p)

	verdict := v.Validate(p.AgentID) // consensus.Valid at 2/3

A full validator node with an HTTP surface is assembled with NewNode.
*/
package korra
