// Package preflight checks the filesystem locations a pass depends on
// before any work-directory state changes.
//
// These checks run in two contexts:
//   - The launcher runs RunAll before allocating a pass; a failed required
//     check aborts the launch.
//   - The CLI "passlaunch check" command renders every result.
package preflight
