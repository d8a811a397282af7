// Package e2e holds the end-to-end scenario suite: hand-assembled RISC-V
// programs pushed through the full discover/lift/CFG pipeline and executed
// under the reference interpreter.
package e2e
