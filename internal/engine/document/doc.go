// Package document provides the text model the formatting engine operates on.
//
// A Document stores its content as lines and assigns a monotonically
// increasing content version to every mutation. Mutations are classified
// into raw change events (full flush, single-line edit, lines inserted,
// lines deleted) and delivered synchronously, in emission order, to
// subscribers registered with OnChange. The change stream is what the
// formatting layer uses to decide whether an asynchronously computed
// result is still safe to apply.
//
// All Document methods are safe for concurrent use. Change handlers are
// invoked while an internal notification lock is held and must not mutate
// the document they observe.
package document
