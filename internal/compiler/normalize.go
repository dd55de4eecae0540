package compiler

import (
	"maps"

	"github.com/aretw0/flowbot/pkg/domain"
)

// mediaURLKeys are the per-kind URL fields older editors write instead of mediaUrl.
var mediaURLKeys = []string{"imageUrl", "photoUrl", "videoUrl", "audioUrl", "documentUrl", "stickerUrl", "voiceUrl", "animationUrl", "fileId"}

// buttonTargetKeys are legacy aliases of a button's target.
var buttonTargetKeys = []string{"targetNodeId", "targetCommand"}

// normalize rewrites editor aliases into canonical keys and fills defaults.
// The input map is not modified.
func normalize(t domain.NodeType, data map[string]any) map[string]any {
	bag := make(map[string]any, len(data)+2)
	maps.Copy(bag, data)

	if t.IsMedia() {
		if _, ok := bag["mediaUrl"]; !ok {
			for _, k := range mediaURLKeys {
				if v, ok := bag[k]; ok {
					bag["mediaUrl"] = v
					break
				}
			}
		}
		for _, k := range mediaURLKeys {
			delete(bag, k)
		}
	}

	if t == domain.NodeStart {
		if cmd, _ := bag["command"].(string); cmd == "" {
			bag["command"] = domain.DefaultStartCommand
		}
	}
	if t == domain.NodeUserInput {
		bag["collectUserInput"] = true
	}

	if buttons, ok := bag["buttons"].([]any); ok {
		bag["buttons"] = normalizeButtons(buttons)
		if kb, _ := bag["keyboardType"].(string); kb == "" && len(buttons) > 0 {
			bag["keyboardType"] = domain.KeyboardInline
		}
	}

	if conds, ok := bag["conditionalMessages"].([]any); ok {
		out := make([]any, len(conds))
		for i, c := range conds {
			cm, ok := c.(map[string]any)
			if !ok {
				out[i] = c
				continue
			}
			cm = maps.Clone(cm)
			if buttons, ok := cm["buttons"].([]any); ok {
				cm["buttons"] = normalizeButtons(buttons)
			}
			out[i] = cm
		}
		bag["conditionalMessages"] = out
	}

	return bag
}

func normalizeButtons(buttons []any) []any {
	out := make([]any, len(buttons))
	for i, b := range buttons {
		bm, ok := b.(map[string]any)
		if !ok {
			out[i] = b
			continue
		}
		bm = maps.Clone(bm)
		if _, ok := bm["target"]; !ok {
			for _, k := range buttonTargetKeys {
				if v, ok := bm[k]; ok {
					bm["target"] = v
					break
				}
			}
		}
		for _, k := range buttonTargetKeys {
			delete(bm, k)
		}
		if _, ok := bm["action"]; !ok {
			bm["action"] = string(domain.ActionGoto)
		}
		out[i] = bm
	}
	return out
}
