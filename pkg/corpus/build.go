package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ultrawiki/refpipe/internal/common"
	"github.com/ultrawiki/refpipe/models"
	"github.com/ultrawiki/refpipe/pkg/refs"
	"github.com/ultrawiki/refpipe/pkg/storage"
)

const (
	defaultChunkWords  = 350
	fulltextMinWords   = 50
	statusFulltext     = "fetched_fulltext"
	statusShort        = "fetched_short"
	statusNotFetched   = "not_fetched"
	docIDPrefix        = "wiki_en"
	extDocIDHashLength = 16
)

// Builder converts a scrape output directory into corpus JSONL tables.
type Builder struct {
	InputDir   string
	OutDir     string
	ChunkWords int
	Logger     *slog.Logger
}

// BuildResult reports row counts per emitted table.
type BuildResult struct {
	Docs        int
	Passages    int
	Refs        int
	Mentions    int
	ExtDocs     int
	ExtPassages int
	Links       int
}

func NewBuilder(inputDir, outDir string, logger *slog.Logger) *Builder {
	return &Builder{
		InputDir:   inputDir,
		OutDir:     outDir,
		ChunkWords: defaultChunkWords,
		Logger:     logger,
	}
}

// Build walks the article directories under InputDir and writes the seven
// corpus tables under OutDir.
func (b *Builder) Build() (*BuildResult, error) {
	entries, err := os.ReadDir(b.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", b.InputDir, err)
	}
	if err := os.MkdirAll(b.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", b.OutDir, err)
	}

	store := storage.NewStore(b.InputDir)

	var (
		docs        []models.CorpusDoc
		passages    []models.CorpusPassage
		corpusRefs  []models.CorpusReference
		mentions    []models.RefMention
		extDocs     []models.ExtDoc
		extPassages []models.ExtPassage
		links       []models.RefToExt
	)
	seenExt := make(map[string]bool) // ext_doc_id -> had fulltext

	docIdx := 0
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "sessions" {
			continue
		}
		articleDir := filepath.Join(b.InputDir, entry.Name())
		refsPath := store.ReferencesPath(articleDir)
		if !store.HasFile(refsPath) {
			continue
		}

		records, err := refs.LoadJSONL(refsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load references for %s: %w", entry.Name(), err)
		}

		pagePath := filepath.Join(articleDir, entry.Name()+".md")
		raw, err := os.ReadFile(pagePath)
		if err != nil {
			b.Logger.Warn("article page missing, skipping document",
				"dir", entry.Name(), "error", err.Error())
			continue
		}

		body := MarkdownToText(BodyText(string(raw)))
		sentences := SplitSentences(body)
		docID := fmt.Sprintf("%s_%d_%s", docIDPrefix, docIdx, common.ContentHash([]byte(body))[:8])
		docIdx++

		docs = append(docs, models.CorpusDoc{
			DocID:      docID,
			Title:      entry.Name(),
			NTokens:    CountTokens(body),
			NSentences: len(sentences),
			NRefs:      len(records),
			SHA1Text:   common.ContentHash([]byte(body)),
			SourceDir:  entry.Name(),
			SourceFile: filepath.Base(pagePath),
		})

		passages = append(passages, b.docPassages(docID, sentences)...)
		mentions = append(mentions, citationMentions(docID, sentences, len(records))...)

		for i, rec := range records {
			refID := fmt.Sprintf("%s_r%d", docID, i+1)
			corpusRefs = append(corpusRefs, models.CorpusReference{
				DocID:         docID,
				RefID:         refID,
				Title:         rec.Title,
				URL:           rec.URL,
				NormURL:       common.NormURL(rec.URL),
				IsExternal:    rec.IsExternal,
				Author:        rec.Author,
				Source:        rec.Source,
				ArchiveURL:    rec.ArchiveURL,
				PublishDate:   rec.PublishDate,
				RetrievedDate: rec.RetrievedDate,
				Scraped:       rec.Scraped,
				RefHash:       common.ContentHash([]byte(rec.URL + "\x00" + rec.Title))[:extDocIDHashLength],
			})

			if !rec.IsExternal {
				continue
			}
			extDocID := fmt.Sprintf("ext_%s",
				common.ContentHash([]byte(common.NormURL(rec.URL)))[:extDocIDHashLength])
			links = append(links, models.RefToExt{DocID: docID, RefID: refID, ExtDocID: extDocID})

			if _, ok := seenExt[extDocID]; ok {
				continue
			}
			seenExt[extDocID] = true

			extDoc, extChunks := b.buildExtDoc(store, articleDir, extDocID, i, &rec)
			extDocs = append(extDocs, extDoc)
			extPassages = append(extPassages, extChunks...)
		}
	}

	if err := writeTable(filepath.Join(b.OutDir, "docs.jsonl"), docs); err != nil {
		return nil, err
	}
	if err := writeTable(filepath.Join(b.OutDir, "passages.jsonl"), passages); err != nil {
		return nil, err
	}
	if err := writeTable(filepath.Join(b.OutDir, "references.jsonl"), corpusRefs); err != nil {
		return nil, err
	}
	if err := writeTable(filepath.Join(b.OutDir, "ref_mentions.jsonl"), mentions); err != nil {
		return nil, err
	}
	if err := writeTable(filepath.Join(b.OutDir, "ext_docs.jsonl"), extDocs); err != nil {
		return nil, err
	}
	if err := writeTable(filepath.Join(b.OutDir, "ext_passages.jsonl"), extPassages); err != nil {
		return nil, err
	}
	if err := writeTable(filepath.Join(b.OutDir, "ref2ext.jsonl"), links); err != nil {
		return nil, err
	}

	return &BuildResult{
		Docs:        len(docs),
		Passages:    len(passages),
		Refs:        len(corpusRefs),
		Mentions:    len(mentions),
		ExtDocs:     len(extDocs),
		ExtPassages: len(extPassages),
		Links:       len(links),
	}, nil
}

func (b *Builder) docPassages(docID string, sentences []string) []models.CorpusPassage {
	var out []models.CorpusPassage
	offset := 0
	for i, chunk := range ChunkSentences(sentences, b.ChunkWords) {
		out = append(out, models.CorpusPassage{
			PassageID:    fmt.Sprintf("%s_p%d", docID, i),
			DocID:        docID,
			SectionID:    0,
			Text:         chunk.Text,
			StartChar:    offset,
			EndChar:      offset + len(chunk.Text),
			SentStartIdx: chunk.SentStartIdx,
			SentEndIdx:   chunk.SentEndIdx,
			NTokens:      CountTokens(chunk.Text),
			SHA1Text:     common.ContentHash([]byte(chunk.Text)),
		})
		offset += len(chunk.Text) + 1
	}
	return out
}

func (b *Builder) buildExtDoc(store *storage.Store, articleDir, extDocID string, refIndex int, rec *models.Reference) (models.ExtDoc, []models.ExtPassage) {
	doc := models.ExtDoc{
		ExtDocID:      extDocID,
		URL:           rec.URL,
		NormURL:       common.NormURL(rec.URL),
		ArchiveURL:    rec.ArchiveURL,
		Title:         rec.Title,
		Authors:       rec.Author,
		Source:        rec.Source,
		PublishDate:   rec.PublishDate,
		RetrievedDate: rec.RetrievedDate,
		SourceType:    ClassifySourceType(rec.URL),
		Lang:          "en",
		Status:        statusNotFetched,
	}

	pagePath := store.RefPagePath(articleDir, rec.Title, refIndex)
	raw, err := os.ReadFile(pagePath)
	if err != nil {
		return doc, nil
	}

	text := MarkdownToText(string(raw))
	nTokens := CountTokens(text)
	doc.NTokens = nTokens
	doc.SHA1Text = common.ContentHash([]byte(text))
	doc.Lang = DetectLang(text)
	if nTokens < fulltextMinWords {
		doc.Status = statusShort
		return doc, nil
	}

	doc.Status = statusFulltext
	doc.HasFulltext = true

	var chunks []models.ExtPassage
	offset := 0
	for i, chunk := range ChunkSentences(SplitSentences(text), b.ChunkWords) {
		chunks = append(chunks, models.ExtPassage{
			ExtPassageID: fmt.Sprintf("%s_p%d", extDocID, i),
			ExtDocID:     extDocID,
			Text:         chunk.Text,
			StartChar:    offset,
			EndChar:      offset + len(chunk.Text),
			NTokens:      CountTokens(chunk.Text),
			SHA1Text:     common.ContentHash([]byte(chunk.Text)),
		})
		offset += len(chunk.Text) + 1
	}
	return doc, chunks
}

// writeTable writes one slice of rows as a JSONL file.
func writeTable[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range rows {
		if err := enc.Encode(&rows[i]); err != nil {
			return fmt.Errorf("failed to encode row %d of %s: %w", i, path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}
