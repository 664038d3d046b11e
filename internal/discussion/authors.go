package discussion

import (
	"gorm.io/gorm"

	userModel "terminal-terrace/sse-blog/internal/model/user"
)

// loadAuthors 批量加载评论作者信息
// 用户已被删除时返回占位信息，避免列表因单个作者缺失而失败
func loadAuthors(db *gorm.DB, userIDs []uint) (map[uint]*UserInfo, error) {
	authors := make(map[uint]*UserInfo, len(userIDs))
	if len(userIDs) == 0 {
		return authors, nil
	}

	var users []userModel.User
	if err := db.Select("id, username, avatar_path").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		authors[u.ID] = &UserInfo{ID: u.ID, Username: u.Username, Avatar: u.AvatarPath}
	}
	for _, id := range userIDs {
		if _, ok := authors[id]; !ok {
			authors[id] = &UserInfo{ID: id, Username: "Unknown User"}
		}
	}
	return authors, nil
}
