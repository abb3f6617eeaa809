// Package main hosts the passlaunch CLI entrypoint and command graph.
//
// `process` stages the next pass of a seeded work directory and submits its
// master job and worker array; `passes` reads back what earlier invocations
// recorded; `check` reports whether the programs a pass needs are present;
// `config` scaffolds and validates the configuration file.
//
// Logs go to stderr. Stdout carries command results only, so
// `process --machine-output` can be parsed by scripts.
package main
