// Package listener defines the callbacks a job run reports to, plus a few
// ready-made implementations: a logger, a progress tracker, a fan-out and a
// socket.io broadcaster.
package listener
