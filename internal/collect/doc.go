// Package collect holds the producers that feed the engine: the router
// counter poller over SSH, the local gopsutil sampler and one WebSocket
// poller per remote agent.
//
// Every producer runs until its context is cancelled and returns an error
// only when the engine stops accepting commands.
package collect
