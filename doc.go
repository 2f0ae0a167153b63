// Package printops is the realtime operations backend for a print shop:
// an authenticated websocket broadcast layer that keeps the admin dashboard
// and shop-floor tablets in sync as jobs, inventory, and machines change.
//
// # Architecture
//
// The core is three cooperating pieces:
//
//	┌─────────────────────────────────────┐
//	│        Broadcast Gateway            │  authenticated sessions,
//	│   (realtime: registry + groups)     │  publish-to-group fan-out
//	└─────────────────────────────────────┘
//	           ↑ envelopes
//	┌─────────────────────────────────────┐
//	│       Domain Event Emitters         │  job / inventory / machine
//	│     (event: envelope + targets)     │  changes → typed events
//	└─────────────────────────────────────┘
//	           ↑ mutations
//	┌─────────────────────────────────────┐
//	│        Domain Services              │  state machine, stock
//	│    (job, inventory, machine)        │  alerts, assignments
//	└─────────────────────────────────────┘
//
// On the other side of the wire, the client package maintains each tablet's
// connection with exponential backoff and a hard attempt cap.
//
// # Delivery Model
//
// Delivery is at-most-once and best-effort. Envelopes are self-contained
// snapshots; there is no replay buffer, so a client that was disconnected
// re-fetches authoritative state after reconnecting instead of receiving
// missed events. A slow session never stalls delivery to other members of
// its groups.
//
// # Packages
//
//   - realtime: session registry, group resolver, websocket gateway
//   - event: envelope format, typed payloads, emitters, NATS mirror
//   - job: status state machine, progress auto-promotion, quality checks
//   - inventory: stock tracking and low-stock alert lifecycle
//   - machine: press status and job assignment
//   - client: reconnecting websocket client for the shop-floor surfaces
//   - auth: bearer-token verification and roles
//   - config, errors, health, metric, natsclient, pkg/retry: infrastructure
//
// The opsd binary under cmd/opsd wires the server side together.
package printops
