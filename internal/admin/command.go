package admin

import (
	"context"
	"strings"

	id "joingate/pkg/domain"
)

// CommandPrefix starts every admin chat command.
const CommandPrefix = "verify"

// Usage is the reply to "verify help".
const Usage = `Usage: verify <action> [args...]
verify enable - turn verification on
verify disable - turn verification off (whitelist only)
verify mode <whitelist|text-captcha|image-captcha> - set the verification mode
verify timeout <60-3600> - set the challenge timeout in seconds
verify whitelist add <user> [remark] - add a user to the whitelist
verify whitelist remove <user> - remove a user from the whitelist
verify whitelist list - show the whitelist
verify admin add <user> [remark] - grant administrator rights
verify admin remove <user> - revoke administrator rights
verify admin list - show administrators
verify audit - show the latest verification records`

const replyUnknown = "Unknown command, send \"verify help\" for usage."

// Dispatch parses a group chat message as an admin command. handled is false
// when text is not a command, in which case the message should go on to the
// verification flow.
func (s *Service) Dispatch(ctx context.Context, caller id.UserID, groupID id.GroupID, text string) (reply string, handled bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.EqualFold(fields[0], CommandPrefix) {
		return "", false
	}
	if len(fields) == 1 {
		return Usage, true
	}
	action, args := strings.ToLower(fields[1]), fields[2:]

	switch action {
	case "help":
		return Usage, true
	case "enable":
		return s.Enable(ctx, caller, groupID), true
	case "disable":
		return s.Disable(ctx, caller, groupID), true
	case "mode":
		return s.SetMode(ctx, caller, groupID, arg(args, 0)), true
	case "timeout":
		return s.SetTimeout(ctx, caller, groupID, arg(args, 0)), true
	case "whitelist":
		return s.dispatchWhitelist(ctx, caller, groupID, args), true
	case "admin", "operator":
		return s.dispatchOperator(ctx, caller, args), true
	case "audit":
		return s.Audit(ctx, caller, groupID), true
	default:
		return replyUnknown, true
	}
}

func (s *Service) dispatchWhitelist(ctx context.Context, caller id.UserID, groupID id.GroupID, args []string) string {
	switch strings.ToLower(arg(args, 0)) {
	case "add":
		return s.AddWhitelist(ctx, caller, groupID, arg(args, 1), remark(args, 2))
	case "remove":
		return s.RemoveWhitelist(ctx, caller, groupID, arg(args, 1))
	case "list":
		return s.ListWhitelist(ctx, caller)
	default:
		return "Invalid whitelist action, use add/remove/list."
	}
}

func (s *Service) dispatchOperator(ctx context.Context, caller id.UserID, args []string) string {
	switch strings.ToLower(arg(args, 0)) {
	case "add":
		return s.AddOperator(ctx, caller, arg(args, 1), remark(args, 2))
	case "remove":
		return s.RemoveOperator(ctx, caller, arg(args, 1))
	case "list":
		return s.ListOperators(ctx, caller)
	default:
		return "Invalid admin action, use add/remove/list."
	}
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// remark joins everything from index i on, so remarks may contain spaces.
func remark(args []string, i int) string {
	if i >= len(args) {
		return ""
	}
	return strings.Join(args[i:], " ")
}
