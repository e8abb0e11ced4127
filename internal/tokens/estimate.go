// Package tokens provides rough token cost estimates for vision requests.
package tokens

// EstimateText estimates the token count of text using the common
// heuristic of ~4 characters per token for English.
func EstimateText(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateImage estimates the token cost of an image attachment using
// the OpenAI tile model: a fixed base plus 170 tokens per 512px tile
// at high detail. Low detail always costs the base alone.
func EstimateImage(width, height int, detail string) int {
	const base = 85
	if detail == "low" || width <= 0 || height <= 0 {
		return base
	}

	// High detail first scales the image to fit 2048x2048, then the
	// short side to 768, before tiling.
	w, h := float64(width), float64(height)
	if w > 2048 || h > 2048 {
		scale := 2048 / max(w, h)
		w, h = w*scale, h*scale
	}
	if min(w, h) > 768 {
		scale := 768 / min(w, h)
		w, h = w*scale, h*scale
	}

	tilesX := int((w + 511) / 512)
	tilesY := int((h + 511) / 512)
	return base + 170*tilesX*tilesY
}
