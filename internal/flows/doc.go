// Package flows holds the multi-step session lifecycle sequences: login,
// logout, and startup bootstrap. Each flow is a plain function taking a deps
// struct of function fields, so the client facade wires real collaborators
// and tests wire stubs without any interface ceremony.
//
// # Architecture boundaries
//
//   - Flows never talk HTTP directly; they go through the gateway request
//     shape handed to them via deps.
//   - Flows never construct user-facing errors beyond what deps provide;
//     the host owns the error taxonomy.
package flows
