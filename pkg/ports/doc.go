/*
Package ports defines the driven ports (interfaces) for the KORRA engine.

These interfaces decouple the core from external implementations, letting the
agent work with different isolation backends and the validator surface with
different audit sinks.

# Key Interfaces

  - Sandbox: The isolated-execution collaborator that turns input bytes into
    output bytes.
  - ProofArchive: An append-only audit trail of accepted proof submissions.
*/
package ports
