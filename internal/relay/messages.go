package relay

import (
	"fmt"
	"strings"

	"github.com/vburojevic/mcrevive/internal/domain"
)

// Message prefixes let tests and operators tell notification kinds apart.
const (
	prefixDebug  = "[DEBUG]"
	prefixError  = "[ERROR]"
	prefixReport = "🔄"
)

func onlineMessage() string {
	return "✅ **Report relay is online and listening for TCP connections!**"
}

func connectedMessage(remote string) string {
	return fmt.Sprintf("%s **New TCP client connected** from %s", prefixDebug, remote)
}

func rawMessage(remote, text string) string {
	return fmt.Sprintf("%s **Got something through TCP** from %s:\n```%s```", prefixDebug, remote, text)
}

func malformedMessage(err error) string {
	return fmt.Sprintf("%s Received malformed message, ignoring: %v", prefixError, err)
}

func reportMessage(r domain.RestartReport) string {
	return fmt.Sprintf("%s **Minecraft Clients Restarted: %d**\n🖥 **Sessions:**\n```%s```",
		prefixReport, r.Count, strings.Join(r.Names, "\n"))
}

func disconnectedMessage(remote string) string {
	return fmt.Sprintf("%s **Client disconnected**: %s", prefixDebug, remote)
}

func resetMessage(remote string) string {
	return fmt.Sprintf("%s **Connection reset** by %s", prefixError, remote)
}

func idleMessage(remote string) string {
	return fmt.Sprintf("%s **Client idle timeout**: %s", prefixDebug, remote)
}

func faultMessage(remote string, err error) string {
	return fmt.Sprintf("%s **Connection error** with %s: %v", prefixError, remote, err)
}
