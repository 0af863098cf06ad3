package logctx

import (
	"context"
	"slices"
	"sonarfeed/internal/global"
)

// Returns a child context with tag added to the end of the tag path.
// The parent's tags are never modified.
func AppendCtxTag(ctx context.Context, tag string) (newCtx context.Context) {
	tags := append(GetTagList(ctx), tag)
	newCtx = context.WithValue(ctx, global.LogTagsKey, tags)
	return
}

// Returns a child context whose tag path is exactly tags
func ReplaceCtxTags(ctx context.Context, tags []string) (newCtx context.Context) {
	newCtx = context.WithValue(ctx, global.LogTagsKey, slices.Clone(tags))
	return
}

// Copy of the tag path stored in ctx, empty when none is set
func GetTagList(ctx context.Context) (tags []string) {
	stored, _ := ctx.Value(global.LogTagsKey).([]string)
	tags = make([]string, len(stored), len(stored)+1)
	copy(tags, stored)
	return
}
