package models

// Corpus table rows. Each type maps to one JSONL table written by
// `refpipe corpus build`; field names follow the on-disk column names.

// CorpusDoc summarizes one scraped article.
type CorpusDoc struct {
	DocID      string `json:"doc_id"`
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	NTokens    int    `json:"n_tokens"`
	NSentences int    `json:"n_sentences"`
	NRefs      int    `json:"n_refs"`
	SHA1Text   string `json:"sha1_text"`
	SourceDir  string `json:"source_dir"`
	SourceFile string `json:"source_file"`
}

// CorpusPassage is a ~350-word chunk of an article body.
type CorpusPassage struct {
	PassageID    string `json:"passage_id"`
	DocID        string `json:"doc_id"`
	SectionID    int    `json:"section_id"`
	Text         string `json:"text"`
	StartChar    int    `json:"start_char"`
	EndChar      int    `json:"end_char"`
	SentStartIdx int    `json:"sent_start_idx"`
	SentEndIdx   int    `json:"sent_end_idx"`
	NTokens      int    `json:"n_tokens"`
	SHA1Text     string `json:"sha1_text"`
}

// CorpusReference is a reference record re-keyed for the corpus.
type CorpusReference struct {
	DocID         string `json:"doc_id"`
	RefID         string `json:"ref_id"`
	Title         string `json:"title,omitempty"`
	URL           string `json:"url,omitempty"`
	NormURL       string `json:"norm_url,omitempty"`
	IsExternal    bool   `json:"is_external"`
	Author        string `json:"author,omitempty"`
	Source        string `json:"source,omitempty"`
	ArchiveURL    string `json:"archive_url,omitempty"`
	PublishDate   string `json:"publish_date,omitempty"`
	RetrievedDate string `json:"retrieved_date,omitempty"`
	Scraped       bool   `json:"scraped"`
	RefHash       string `json:"ref_hash"`
}

// RefMention is one inline citation marker ([n], [^n], (n)) located in a
// sentence of the article body.
type RefMention struct {
	DocID             string `json:"doc_id"`
	RefID             string `json:"ref_id"`
	SectionID         int    `json:"section_id"`
	SentIdx           int    `json:"sent_idx"`
	AnchorOffsetStart int    `json:"anchor_offset_start"`
	AnchorOffsetEnd   int    `json:"anchor_offset_end"`
}

// ExtDoc is a fetched external reference page.
type ExtDoc struct {
	ExtDocID      string `json:"ext_doc_id"`
	URL           string `json:"url,omitempty"`
	NormURL       string `json:"norm_url,omitempty"`
	ArchiveURL    string `json:"archive_url,omitempty"`
	Title         string `json:"title,omitempty"`
	Authors       string `json:"authors,omitempty"`
	Source        string `json:"source,omitempty"`
	PublishDate   string `json:"publish_date,omitempty"`
	RetrievedDate string `json:"retrieved_date,omitempty"`
	SourceType    string `json:"source_type"`
	Lang          string `json:"lang"`
	Status        string `json:"status"`
	HasFulltext   bool   `json:"has_fulltext"`
	NTokens       int    `json:"n_tokens,omitempty"`
	SHA1Text      string `json:"sha1_text,omitempty"`
}

// ExtPassage is a chunk of an external reference page.
type ExtPassage struct {
	ExtPassageID string `json:"ext_passage_id"`
	ExtDocID     string `json:"ext_doc_id"`
	Text         string `json:"text"`
	StartChar    int    `json:"start_char"`
	EndChar      int    `json:"end_char"`
	NTokens      int    `json:"n_tokens"`
	SHA1Text     string `json:"sha1_text"`
}

// RefToExt links a document's reference to its external document.
type RefToExt struct {
	DocID    string `json:"doc_id"`
	RefID    string `json:"ref_id"`
	ExtDocID string `json:"ext_doc_id"`
}
