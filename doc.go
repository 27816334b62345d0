// Package caseflow provides a security-incident response engine: playbooks
// declared as task graphs are compiled into execution layers and run against
// a case, with every decision recorded in a tamper-evident audit ledger.
//
// The engine gates each task through idempotency deduplication, human
// approval and a policy gate before dispatching it to a registered connector.
// End-users interact via the high-level Service façade exposed by the root
// package:
//
//	srv, _ := caseflow.New()
//	playbook, _ := srv.LoadPlaybook(ctx, "phishing.yaml")
//	result, _ := srv.RunPlaybook(ctx, playbook, aCase, vars, false)
//	srv.ApproveTask(ctx, "purge-mailbox", "alice")
//
// For more details see the README and individual sub-packages.
package caseflow
