// Package fulfillment implements the order-fulfillment core for a SaaS
// marketplace listing: resolving landing-page purchase tokens into customer
// records, and applying signed lifecycle webhooks (quantity changes, suspend,
// unsubscribe, reinstate) to a tenant's license count.
//
// Webhook authentication:
//   - TokenAuthenticator validates the inbound bearer token twice: once
//     cryptographically (RS256 signature against a remote key set, issuer,
//     audience, lifetime) and once against configured expectations (tenant,
//     client id, marketplace caller app id). Both layers are deliberate; a
//     misconfigured validator alone never admits a caller.
//   - KeyResolver abstracts the remote JWK discovery document. JWKSResolver
//     fetches and caches keys on demand, KeyfuncResolver keeps them warm in
//     the background.
//
// Provisioning:
//   - Provisioner owns the customer state transitions. Every attempted action
//     writes a ProvisionLog row in InProgress state before any side effect and
//     finalizes it to Succeeded or Failed after. Records are never deleted;
//     unsubscribe zeroes licenses and clears the active flag so the audit
//     trail and idempotency checks survive.
//   - Collaborators (marketplace client, record store, logger, metrics) are
//     injected explicitly. The core holds no state between requests; each call
//     is a fresh read-decide-write cycle against the store.
package fulfillment
