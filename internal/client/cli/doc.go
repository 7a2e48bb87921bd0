// Package cli implements the voicegate command-line client.
//
// Each invocation runs one command against the gateway:
//
//	signup | login            prompt for credentials and store the session
//	refresh                   rotate the stored refresh token
//	logout                    revoke the refresh token and forget the session
//	balance                   show remaining credits
//	transactions [N]          show the last N ledger entries
//	transcribe FILE           upload an audio file and print the transcript
//
// Commands that need an access token refresh the session once and retry when
// the gateway answers 401.
package cli
