// Package credentials holds the service token model shared by the issuance
// workflow and the backend client: the create and update payloads, the
// wrapped workspace key returned by key distribution, and token expiry.
//
// A blank or "never" expiry means the token does not expire; the expiresIn
// field is then left out of the payload instead of being sent as zero.
package credentials
