package embedding

import (
	"context"
	"fmt"
	"os"
	"sync"

	tokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/DreamCats/tubeindex/internal/config"
)

var (
	ortMu   sync.Mutex
	ortRefs int
)

// acquireEnvironment initializes the process-wide onnxruntime environment on first use.
func acquireEnvironment(libraryPath string) error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortRefs == 0 {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	ortRefs++
	return nil
}

func releaseEnvironment() {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortRefs == 0 {
		return
	}
	ortRefs--
	if ortRefs == 0 {
		ort.DestroyEnvironment()
	}
}

// LocalClient runs an exported sentence-transformer model with onnxruntime.
type LocalClient struct {
	tok       *tokenizer.Tokenizer
	session   *ort.DynamicAdvancedSession
	dims      int
	pooling   string
	maxSeqLen int

	// DynamicAdvancedSession.Run is not documented as goroutine safe.
	mu sync.Mutex
}

// NewLocalClient loads the tokenizer and ONNX model described by cfg.
func NewLocalClient(cfg *config.LocalConfig) (*LocalClient, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model not found at %s: %w", cfg.ModelPath, err)
	}

	tok, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	if err := acquireEnvironment(cfg.LibraryPath); err != nil {
		return nil, err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("failed to set graph optimization: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		opts,
	)
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	maxSeqLen := cfg.MaxSeqLen
	if maxSeqLen <= 0 {
		maxSeqLen = 128
	}

	return &LocalClient{
		tok:       tok,
		session:   session,
		dims:      cfg.Dimensions,
		pooling:   cfg.Pooling,
		maxSeqLen: maxSeqLen,
	}, nil
}

// Embed generates an embedding for a single text
func (c *LocalClient) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch tokenizes texts, runs one inference pass and pools the hidden states.
func (c *LocalClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputs := make([]tokenizer.EncodeInput, len(texts))
	for i, t := range texts {
		inputs[i] = tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(t))
	}

	encodings, err := c.tok.EncodeBatch(inputs, true)
	if err != nil {
		return nil, fmt.Errorf("tokenization failed: %w", err)
	}

	ids := make([][]int, len(encodings))
	masks := make([][]int, len(encodings))
	for i, enc := range encodings {
		ids[i], masks[i] = truncate(enc.GetIds(), enc.GetAttentionMask(), c.maxSeqLen)
	}
	batch := newPaddedBatch(ids, masks)

	shape := ort.NewShape(int64(batch.size), int64(batch.seqLen))
	inputIdsTensor, err := ort.NewTensor(shape, batch.inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer inputIdsTensor.Destroy()

	attentionMaskTensor, err := ort.NewTensor(shape, batch.attentionMask)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer attentionMaskTensor.Destroy()

	tokenTypeIdsTensor, err := ort.NewTensor(shape, batch.tokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	defer tokenTypeIdsTensor.Destroy()

	outputs := make([]ort.Value, 1)

	c.mu.Lock()
	err = c.session.Run(
		[]ort.Value{inputIdsTensor, attentionMaskTensor, tokenTypeIdsTensor},
		outputs,
	)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("output tensor is not float32 type")
	}

	outShape := outputTensor.GetShape()
	if len(outShape) != 3 || int(outShape[0]) != batch.size || int(outShape[1]) != batch.seqLen {
		return nil, fmt.Errorf("unexpected output shape %v", outShape)
	}
	hidden := int(outShape[2])
	if c.dims > 0 && hidden != c.dims {
		return nil, fmt.Errorf("model hidden size %d does not match configured dimensions %d", hidden, c.dims)
	}

	pooled := pool(c.pooling, outputTensor.GetData(), batch.attentionMask, batch.size, batch.seqLen, hidden)
	for _, v := range pooled {
		Normalize(v)
	}
	return pooled, nil
}

// Dimensions returns the dimension of the embeddings
func (c *LocalClient) Dimensions() int {
	return c.dims
}

// Close releases the session and, for the last client, the environment.
func (c *LocalClient) Close() error {
	if c.session != nil {
		if err := c.session.Destroy(); err != nil {
			return err
		}
		c.session = nil
		releaseEnvironment()
	}
	return nil
}

// truncate caps a sequence at maxLen tokens, keeping the final special token.
func truncate(ids, mask []int, maxLen int) ([]int, []int) {
	if len(ids) <= maxLen || maxLen < 2 {
		return ids, mask
	}
	outIDs := append(append([]int{}, ids[:maxLen-1]...), ids[len(ids)-1])
	outMask := append(append([]int{}, mask[:maxLen-1]...), mask[len(mask)-1])
	return outIDs, outMask
}

type paddedBatch struct {
	size          int
	seqLen        int
	inputIDs      []int64
	attentionMask []int64
	tokenTypeIDs  []int64
}

// newPaddedBatch right-pads every sequence to the longest one with zeros.
func newPaddedBatch(ids, masks [][]int) paddedBatch {
	seqLen := 0
	for _, s := range ids {
		seqLen = max(seqLen, len(s))
	}
	b := paddedBatch{
		size:          len(ids),
		seqLen:        seqLen,
		inputIDs:      make([]int64, len(ids)*seqLen),
		attentionMask: make([]int64, len(ids)*seqLen),
		tokenTypeIDs:  make([]int64, len(ids)*seqLen),
	}
	for i := range ids {
		offset := i * seqLen
		for j := range ids[i] {
			b.inputIDs[offset+j] = int64(ids[i][j])
			b.attentionMask[offset+j] = int64(masks[i][j])
		}
	}
	return b
}

// pool reduces [batch, seq, hidden] hidden states to one vector per row.
// "cls" takes the first token; anything else averages the unmasked tokens.
func pool(mode string, data []float32, mask []int64, batch, seq, hidden int) [][]float32 {
	out := make([][]float32, batch)
	for b := 0; b < batch; b++ {
		vec := make([]float32, hidden)
		base := b * seq * hidden

		if mode == "cls" {
			copy(vec, data[base:base+hidden])
			out[b] = vec
			continue
		}

		var count float32
		for s := 0; s < seq; s++ {
			if mask[b*seq+s] == 0 {
				continue
			}
			row := data[base+s*hidden : base+(s+1)*hidden]
			for h, x := range row {
				vec[h] += x
			}
			count++
		}
		if count > 0 {
			for h := range vec {
				vec[h] /= count
			}
		}
		out[b] = vec
	}
	return out
}
