// Package approval models the human confirmation gate: tasks flagged
// approval-required file a request here when they suspend, and an external
// decision resumes them through the engine. The service keeps pending
// requests and decisions and fans both out on an event queue so operator
// surfaces can subscribe.
package approval
