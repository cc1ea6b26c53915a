// Command github2file fetches a repository, analyzes its dependency graph and
// writes a compressed artifact: kept files verbatim, the rest as recreation
// prompts produced by a two-tier LLM workflow.
package main

func main() {
	Execute()
}
