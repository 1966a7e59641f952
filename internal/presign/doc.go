// Package presign tracks presignature generation for the recovery service's
// signer set: protocols still in flight, completed unspent presignatures,
// and the FIFO of presignatures this node initiated for its own use. The
// concrete threshold-ECDSA engine is supplied by the caller as a Protocol
// implementation.
package presign
