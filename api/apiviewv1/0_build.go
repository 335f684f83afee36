package apiviewv1

import (
	"github.com/fulldump/box"

	"github.com/fulldump/inceptionview/service"
)

func BuildV1View(v1 *box.R, s service.Servicer) *box.R {

	views := v1.Resource("/views").
		WithActions(
			box.Get(listViews),
			box.Post(createView),
		)

	v1.Resource("/views/{viewName}").
		WithActions(
			box.Get(getView),
			box.ActionPost(insert),
			box.ActionPost(remove),
			box.ActionPost(patch),
			box.ActionPost(dropView),
			box.ActionPost(scan),
			box.ActionPost(find),
			box.ActionPost(lookupByKey).WithName("lookup"),
			box.ActionPost(locate),
			box.ActionPost(search),
			box.Action(collations),
			box.Action(sequence),
		)

	v1.Resource("/views/{viewName}/documents/{documentId}").
		WithActions(
			box.Get(getDocument),
		)

	return views
}
