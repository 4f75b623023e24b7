// Package dispatch runs command tasks on a fixed pool of workers fed by a
// bounded queue.
//
// Submit never blocks: a full queue is reported as QUEUE_FULL so the caller
// can tell the user to try again. Stopping the dispatcher cancels the base
// context every task receives, which terminates running processes.
package dispatch
