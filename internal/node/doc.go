// Package node assembles a roomplan node: transport, event loop, reliability
// layer, replication state machine and booking directory.
//
// All protocol state lives on a single sched.Loop goroutine. Node methods are
// safe to call from any goroutine; they post work onto the loop and wait for
// the result.
//
// Basic usage:
//
//	cfg, _ := config.Load("roomplan.yaml", ".env")
//	n, err := node.New(cfg, node.Options{})
//	if err != nil {
//		return err
//	}
//	if err := n.Start(ctx); err != nil {
//		return err
//	}
//	defer n.Stop()
//
//	id, result, err := n.BookSlot(ctx, 10, "R1", "alice")
package node
