/*
Package domain contains the core domain models shared across the KORRA engine.

It defines the closed set of agent types and the error taxonomy used by the
agent, sandbox, and state layers. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - AgentType: The closed enumeration of supported agent roles.
  - InitializationError / SandboxError / ExecutionError / StateError:
    The typed failures surfaced by agent construction and execution.
*/
package domain
