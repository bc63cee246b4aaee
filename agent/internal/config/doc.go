// Package config loads and watches the agent configuration file (config.yaml).
//
// Top-level types:
//   - Config{Agent, Metrics}: full config tree parsed from YAML
//   - AgentConfig: watch_dir, results_suffix, summary_suffix, ratio_label,
//     settle_delay, start_suffix, log_level
//   - MetricsConfig: listen address for /metrics and the JSON API, optional
//     node-exporter textfile path
//
// Load(path) reads the YAML file, applies defaults (500ms settle delay,
// "_skeleton_results.csv" / "_stats.csv" suffixes, "Integrity (J/B)" label,
// "_start" marker suffix, info level, listen :9464), then validates required
// fields and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It watches the file's parent
// directory and filters events by name, so the watch survives the
// rename→create pattern used by atomic-save editors (vim, VS Code) without
// being re-added.
package config
