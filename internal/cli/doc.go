// Package cli implements the exeraser command line.
//
// Commands
//
//	init                      set the vault passphrase
//	scan                      find a person's photos and events and triage them
//	vault list                show vault items and pending deletions
//	vault restore <id>        put an item back where it came from
//	vault delete <id>         schedule deletion (or --now)
//	vault cancel <id>         withdraw a scheduled deletion
//	vault thumbnail <id> <f>  write an item's decrypted thumbnail
//	sweep                     run the cooling-off sweep once
//	daemon                    sweep periodically until interrupted
//	version                   print build information
//
// Every command that opens the store runs a cooling-off sweep first.
// Commands that read or write vault payloads prompt for the passphrase.
package cli
