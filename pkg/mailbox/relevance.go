package mailbox

import "strings"

// IsRelevant decides whether a parsed message belongs to the given
// organization's correspondence. Pure and deterministic; the folder kind
// is established by where the message was retrieved from, never by
// content inspection.
//
// Sent-folder mail is relevant when some sender display name contains the
// organization name as a case-sensitive substring. Inbox mail is relevant
// when some recipient address carries the organization's plus extension
// ("+<slug>@"). Both rules depend on the naming conventions callers
// guarantee when provisioning mailbox aliases.
func IsRelevant(folder Folder, orgName, orgSlug string, msg *ParsedMessage) bool {
	switch folder {
	case FolderSent:
		for _, from := range msg.From {
			if strings.Contains(from.Name, orgName) {
				return true
			}
		}
	case FolderInbox:
		tag := "+" + orgSlug + "@"
		for _, to := range msg.To {
			if strings.Contains(to.Address, tag) {
				return true
			}
		}
	}
	return false
}
