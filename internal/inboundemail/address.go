// Package inboundemail ingests bookings reported by third-party reservation
// widgets over email. The tenant is identified by a structured recipient
// address, so malformed addresses are the one inbound path that rejects.
package inboundemail

import (
	"strings"

	"github.com/emmanuel582/backendtablenow/platform/apperr"

	"github.com/google/uuid"
)

const tenantIDLength = 36 // canonical uuid text form

// ExtractTenantID pulls the tenant id out of the recipient's local part,
// which follows the pattern <label>-<tenantId>@<domain>. Unlike every other
// channel, a miss here is a hard rejection: without the address pattern no
// tenant context can be inferred at all.
func ExtractTenantID(to string) (uuid.UUID, error) {
	address := strings.TrimSpace(to)
	if start := strings.LastIndex(address, "<"); start != -1 {
		if end := strings.Index(address[start:], ">"); end != -1 {
			address = address[start+1 : start+end]
		}
	}

	at := strings.LastIndex(address, "@")
	if at <= 0 {
		return uuid.Nil, apperr.BadRequest("recipient is not a valid email address")
	}
	local := address[:at]

	if len(local) < tenantIDLength+1 || local[len(local)-tenantIDLength-1] != '-' {
		return uuid.Nil, apperr.BadRequest("recipient address does not carry a tenant id")
	}

	tenantID, err := uuid.Parse(local[len(local)-tenantIDLength:])
	if err != nil {
		return uuid.Nil, apperr.BadRequest("recipient address does not carry a tenant id")
	}
	return tenantID, nil
}
