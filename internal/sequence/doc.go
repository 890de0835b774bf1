// Package sequence runs multi-step dscli plans. It keeps the results of
// earlier steps in a Context, substitutes ${steps[N].result.path}
// references into later arguments, fills missing parameters from earlier
// results and picks the next step through conditional branches.
package sequence
