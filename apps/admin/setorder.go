package main

import (
	"context"

	"github.com/trezcool/mafunzo/core/video"
)

func (cli *commandLine) setOrder(category string, videoIDs []string) error {
	_, err := cli.vidSvc.SetCategoryOrder(context.Background(), video.CategoryOrder{
		Category: category,
		VideoIDs: videoIDs,
	})
	return err
}
