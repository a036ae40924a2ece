package help

const ColdstartYAML = `# refpipe Quick Start

fetch_backends:
  jina: "r.jina.ai reader, markdown output (default)"
  goliath: "internal retrieval service, needs endpoint + token"
  direct: "plain HTTP fetch with readability extraction"

commands:
  scrape_one: |
    refpipe scrape https://en.wikipedia.org/wiki/Agriculture
    refpipe scrape https://en.wikipedia.org/wiki/Agriculture 5 20   # reference lines 5-20

  scrape_batch: |
    refpipe scrape --csv articles.csv --start 1 --end 50
    refpipe scrape --csv articles.csv --all

  resume_batch: |
    # already-scraped references are skipped unless --force
    refpipe scrape --csv articles.csv --all

  build_corpus: |
    refpipe corpus build --input-dir wiki_data --out-dir corpus

  corpus_stats: |
    refpipe corpus stats --corpus-dir corpus

  experiment: |
    refpipe rag                    # check stage gates only
    refpipe rag --run              # run all five stages
    refpipe rag --stage build-kg --run

  deploy: |
    refpipe deploy llm --model-path /models/oss --count 8 --dry-run
    refpipe deploy embed --model-path /models/embed --count 2
    refpipe deploy status --base-port 8001 --count 8 --health

  inspect: |
    refpipe db articles
    refpipe db refs <article-id>
    refpipe db runs --today
    refpipe db engines

key_files:
  - "wiki_data/<article title>/reference/references.jsonl (per-article reference records)"
  - "wiki_data/<article title>/reference/reference_pages/<slug>.md (fetched reference pages)"
  - "wiki_data/<article title>/<article title>.md (article page markdown, yaml front matter)"
  - "wiki_data/manifest.json (last run summary)"
  - "wiki_data/index.yaml (session index)"
  - "corpus/docs.jsonl .. corpus/ref2ext.jsonl (seven corpus tables)"

scrape_invariants:
  - "references.jsonl is rewritten after every fetched reference"
  - "each reference tries: archived copy, primary backend, fallback backend"
  - "low quality pages are refetched up to 3 rounds, then recorded with a filter reason and no page file"
  - "rerunning a scrape skips refs already marked scraped (use --force to redo)"

env_vars:
  JINA_API_KEY: "reader auth (optional, higher rate limit)"
  GOLIATH_ENDPOINT: "goliath service URL"
  GOLIATH_TOKEN: "goliath bearer token"
  CLASS: "experiment corpus class (default agriculture)"
  OSS_PORTS: "comma separated LLM ports, one GPU each"
  EMBED_PORTS: "comma separated embedding ports"
`
