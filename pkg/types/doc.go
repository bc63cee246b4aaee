// Package types defines the naming contract shared by the agent and the
// image-analysis host: which container a file belongs to, which unit
// (series/slice) it describes, and where every derived file lives.
//
// Path components are derived once, when a Container or Unit is built, and
// reused by every caller. Nothing in this package touches the filesystem.
package types
