// Package cli wires together the Cobra command tree for the codeward binary.
//
// It defines the root command and all subcommands (run, analyze, job, lock,
// prompts, config, models, cache, hook, version), binds flags, reads
// configuration, hands jobs to the orchestrator and maps their outcome to
// deterministic exit codes.
package cli
