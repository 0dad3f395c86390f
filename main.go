// Command gatewayd runs the radbot multi-agent conversational orchestration
// server: a root coordinator agent delegating to specialist agents and
// tools over HTTP/WebSocket, with cron/reminder/webhook subsystems
// injecting background invocations into the same runtime.
package main

import "github.com/radbot/gateway/cmd"

func main() {
	cmd.Execute()
}
