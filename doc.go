// Package padnote is the composition root of the padnote sticky-note manager.
//
// A padnote configuration directory holds three things: a YAML preferences
// document, a JSON document of per-note profiles (geometry, colours, font,
// pin state) and a notes directory of plain .txt and .png files, optionally
// grouped one level deep into folders. The packages under pkg/ own one
// concern each:
//
//   - config: the preferences document with defaults and schema recovery.
//   - profile: the shared profiles document and per-note views of it.
//   - registry: the live note set, note lifecycle, folders, actions and menus.
//   - session: the single-instance coordinator and its local endpoint.
//
// The rendering layer is not part of padnote. A UI plugs in through
// core.WindowFactory and core.Confirmer; without one notes run headless,
// which is how the command line and the tests drive them.
//
// Usage:
//
//	coord := session.New(config.SocketPath(dir))
//	outcome, err := coord.Run(ctx, session.ActionArgs("New note"),
//		padnote.Boot(dir, padnote.WithLogger(logger)),
//	)
//
// The first process to run becomes the session. Later ones forward their
// arguments to it and exit.
package padnote
